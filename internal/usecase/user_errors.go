package usecase

import (
	"context"
	"errors"
	"strings"

	"github.com/shopconcierge/backend/internal/domain"
)

// Operation identifies the collaborator call an error came from
type Operation string

const (
	OpSearch         Operation = "search"
	OpCartAdd        Operation = "cart_add"
	OpCartView       Operation = "cart_view"
	OpProductDetails Operation = "product_details"
	OpGeneric        Operation = "generic"
)

type errorCategory int

const (
	categoryGeneric errorCategory = iota
	categoryNotFound
	categoryTimeout
	categoryConnection
	categoryValidation
)

// classifyError maps an error to a coarse category.
// Sentinels are checked first; unknown errors fall back to inspecting their text.
func classifyError(err error) errorCategory {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return categoryNotFound
	case errors.Is(err, context.DeadlineExceeded):
		return categoryTimeout
	case errors.Is(err, domain.ErrUnavailable):
		return categoryConnection
	case errors.Is(err, domain.ErrInvalidInput), errors.Is(err, domain.ErrInvalidRequest):
		return categoryValidation
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "no product with id"), strings.Contains(msg, "not found"):
		return categoryNotFound
	case strings.Contains(msg, "timeout"), strings.Contains(msg, "deadline"):
		return categoryTimeout
	case strings.Contains(msg, "connection"), strings.Contains(msg, "unavailable"), strings.Contains(msg, "service"):
		return categoryConnection
	case strings.Contains(msg, "invalid"):
		return categoryValidation
	}
	return categoryGeneric
}

// FriendlyError turns a collaborator error into a message safe to show a shopper.
// The raw error text never reaches the returned string.
func FriendlyError(err error, op Operation) string {
	if err == nil {
		return ""
	}
	category := classifyError(err)

	if category == categoryNotFound {
		if op == OpProductDetails {
			return "I couldn't find details for that product. It may no longer be available."
		}
		return "Sorry, that product couldn't be found. Please try searching for products first to get valid product IDs."
	}

	switch op {
	case OpCartAdd:
		switch category {
		case categoryTimeout, categoryConnection:
			return "I'm having trouble connecting to the shopping cart right now. Please try again in a moment."
		case categoryValidation:
			return "There was an issue with the product information. Please try searching for the product again."
		}
		return "I couldn't add that item to your cart right now. Please try again or search for the product first."

	case OpSearch:
		switch category {
		case categoryTimeout:
			return "The product search is taking too long. Please try again with different keywords."
		case categoryConnection:
			return "I'm having trouble accessing the product catalog. Please try again in a moment."
		}
		return "I couldn't search for products right now. Please try again with different keywords."

	case OpCartView:
		if category == categoryTimeout || category == categoryConnection {
			return "I can't access your cart right now. Please try again in a moment."
		}
		return "There was a problem loading your cart. Please try refreshing."

	case OpProductDetails:
		if category == categoryTimeout || category == categoryConnection {
			return "I'm having trouble loading product details right now. Please try again."
		}
		return "I couldn't get the details for that product. Please try again."
	}

	switch category {
	case categoryTimeout:
		return "The request took too long. Please try again."
	case categoryConnection:
		return "I'm having trouble connecting to our systems. Please try again in a moment."
	case categoryValidation:
		return "That request doesn't look right. Please check it and try again."
	}
	return "Something went wrong. Please try again or rephrase your request."
}
