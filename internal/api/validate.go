package api

import (
	"fmt"
	"strings"

	"fzclean/internal/model"
)

var serviceTypes = map[string]struct{}{
	"wash_fold": {}, "dry_clean": {}, "iron": {}, "premium": {},
}

func validateOrderIn(in *model.OrderIn) error {
	if in.CustomerID == "" && in.Customer == nil {
		return fmt.Errorf("customerId or an inline customer is required")
	}
	if in.Customer != nil {
		if strings.TrimSpace(in.Customer.Name) == "" {
			return fmt.Errorf("customer.name is required")
		}
		if strings.TrimSpace(in.Customer.Phone) == "" {
			return fmt.Errorf("customer.phone is required")
		}
	}
	if len(in.Items) == 0 {
		return fmt.Errorf("at least one item is required")
	}
	for i, it := range in.Items {
		if strings.TrimSpace(it.Name) == "" {
			return fmt.Errorf("items[%d].name is required", i)
		}
		if it.Quantity < 1 {
			return fmt.Errorf("items[%d].quantity must be >= 1", i)
		}
		if it.Price < 0 {
			return fmt.Errorf("items[%d].price must be >= 0", i)
		}
		if _, ok := serviceTypes[it.Service]; !ok {
			return fmt.Errorf("items[%d].service must be one of: wash_fold, dry_clean, iron, premium", i)
		}
	}
	return nil
}

func validateTransitIn(in *model.TransitIn) error {
	if in.Direction != model.DirectionToFactory && in.Direction != model.DirectionToStore {
		return fmt.Errorf("direction must be %s or %s", model.DirectionToFactory, model.DirectionToStore)
	}
	if len(in.OrderIDs) == 0 {
		return fmt.Errorf("at least one order id is required")
	}
	return nil
}

func validateEmployeeIn(in *model.EmployeeIn) error {
	if strings.TrimSpace(in.Name) == "" {
		return fmt.Errorf("name is required")
	}
	if !strings.Contains(in.Email, "@") {
		return fmt.Errorf("a valid email is required")
	}
	switch in.Role {
	case model.RoleAdmin, model.RoleStaff, model.RoleDriver:
	default:
		return fmt.Errorf("role must be one of: admin, staff, driver")
	}
	if len(in.Password) < 6 {
		return fmt.Errorf("password must be at least 6 characters")
	}
	return nil
}

// Order statuses only move forward. Cancellation is allowed until the
// order leaves the store; the delivery leg ends in delivered or failed.
var orderTransitions = map[string][]string{
	model.OrderReceived:       {model.OrderProcessing, model.OrderCancelled},
	model.OrderProcessing:     {model.OrderReady, model.OrderCancelled},
	model.OrderReady:          {model.OrderOutForDelivery, model.OrderCancelled},
	model.OrderOutForDelivery: {model.OrderDelivered, model.OrderFailed},
}

func canTransitionOrder(from, to string) bool {
	for _, next := range orderTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

var transitTransitions = map[string][]string{
	model.TransitPending:    {model.TransitDispatched},
	model.TransitDispatched: {model.TransitArrived},
}

func canTransitionTransit(from, to string) bool {
	for _, next := range transitTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

func isTerminalOrderStatus(status string) bool {
	return status == model.OrderDelivered || status == model.OrderCancelled || status == model.OrderFailed
}
