package database

import (
	"testing"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"storefront/internal/orders"
)

func TestOrderQueryScopesToUserAndActive(t *testing.T) {
	userID := primitive.NewObjectID()
	query := orderQuery(orders.OrderFilter{UserID: &userID, Status: "pending"})

	if query["isActive"] != true {
		t.Fatalf("expected isActive filter, got %v", query)
	}
	if query["userId"] != userID {
		t.Fatalf("expected userId filter, got %v", query["userId"])
	}
	if query["status"] != "pending" {
		t.Fatalf("expected status filter, got %v", query["status"])
	}
	if _, ok := query["$or"]; ok {
		t.Fatal("no search filter expected without a search term")
	}
}

func TestOrderQuerySearchIsEscapedAndCoversCustomer(t *testing.T) {
	query := orderQuery(orders.OrderFilter{Search: "ZNX26.1", PaymentStatus: "completed"})

	or, ok := query["$or"].([]bson.M)
	if !ok || len(or) != 4 {
		t.Fatalf("expected 4 search clauses, got %v", query["$or"])
	}
	fields := map[string]bool{}
	for _, clause := range or {
		for field, cond := range clause {
			fields[field] = true
			if cond.(bson.M)["$regex"] != `ZNX26\.1` {
				t.Fatalf("expected escaped regex, got %v", cond)
			}
		}
	}
	for _, f := range []string{"orderNumber", "shippingAddress.firstName", "shippingAddress.lastName", "shippingAddress.email"} {
		if !fields[f] {
			t.Fatalf("search does not cover %s", f)
		}
	}
	if query["paymentStatus"] != "completed" {
		t.Fatalf("expected paymentStatus filter, got %v", query["paymentStatus"])
	}
	if _, ok := query["userId"]; ok {
		t.Fatal("admin filter must not scope by user")
	}
}

func TestPaymentSetOnlyIncludesProvidedFields(t *testing.T) {
	set := paymentSet(orders.PaymentUpdate{Status: "failed"})
	if len(set) != 1 || set["paymentStatus"] != "failed" {
		t.Fatalf("unexpected set document %v", set)
	}

	set = paymentSet(orders.PaymentUpdate{Method: "online", GatewayOrderID: "order_1", PaymentID: "pay_1"})
	if set["paymentMethod"] != "online" || set["paymentGatewayOrderId"] != "order_1" || set["paymentId"] != "pay_1" {
		t.Fatalf("unexpected set document %v", set)
	}
}
