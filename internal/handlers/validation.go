package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"regexp"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"storefront/internal/models"
)

var (
	pincodePattern = regexp.MustCompile(`^[1-9][0-9]{5}$`)
	registerOnce   sync.Once
	registerErr    error
)

// RegisterValidators installs the storefront tags on gin's validator engine
// and makes field errors report JSON names.
func RegisterValidators() error {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			registerErr = errors.New("unexpected validator engine")
			return
		}

		v.RegisterTagNameFunc(func(field reflect.StructField) string {
			name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
			if name == "-" || name == "" {
				return field.Name
			}
			return name
		})

		tags := map[string]func(string) bool{
			"productsize":     models.IsValidSize,
			"productcategory": models.IsValidCategory,
			"productstatus":   models.IsValidProductStatus,
			"orderstatus":     models.IsValidOrderStatus,
			"paymentstatus":   models.IsValidPaymentStatus,
			"pincode":         pincodePattern.MatchString,
		}
		for tag, check := range tags {
			check := check
			if err := v.RegisterValidation(tag, func(fl validator.FieldLevel) bool {
				return check(fl.Field().String())
			}); err != nil {
				registerErr = fmt.Errorf("register %s: %w", tag, err)
				return
			}
		}
	})
	return registerErr
}

func respondValidationError(c *gin.Context, route string, err error) {
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		details := make([]string, 0, len(validationErrors))
		for _, fieldError := range validationErrors {
			details = append(details, describeFieldError(fieldError))
		}
		respondWithDetails(c, http.StatusBadRequest, route, "validation failed", details)
		return
	}

	respondWithDetails(c, http.StatusBadRequest, route, "invalid body", []string{err.Error()})
}

func describeFieldError(fe validator.FieldError) string {
	field := fieldPath(fe)
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "productsize":
		return fmt.Sprintf("%s must be one of %s", field, strings.Join(models.Sizes, ", "))
	case "orderstatus":
		return fmt.Sprintf("%s must be one of %s", field, strings.Join(models.OrderStatuses, ", "))
	case "min":
		return fmt.Sprintf("%s must have at least %s entries", field, fe.Param())
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of %s", field, fe.Param())
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}

// fieldPath drops the request struct name from the namespace, e.g.
// createOrderRequest.items[0].size becomes items[0].size.
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return lowerCamel(fe.Field())
}

func lowerCamel(field string) string {
	if field == "" {
		return field
	}
	return strings.ToLower(field[:1]) + field[1:]
}
