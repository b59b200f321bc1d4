package service

import (
	"github.com/dukerupert/deltamc/internal/domain"
)

// Session errors - use domain.EINVALID
var (
	ErrSessionRequired = domain.Errorf(domain.EINVALID, "", "Cart session is required")
)

// Order errors
var (
	ErrInvalidEmail  = domain.Errorf(domain.EINVALID, "", "Voer een geldig emailadres in")
	ErrPaymentMethod = domain.Errorf(domain.EINVALID, "", "Kies een betaalmethode")
)

// Payment errors
var (
	ErrInvalidAmount       = domain.Errorf(domain.EINVALID, "", "Invalid amount")
	ErrUnsupportedCurrency = domain.Errorf(domain.EINVALID, "", "Only EUR is supported")
	ErrCheckoutFailed      = domain.Errorf(domain.EINTERNAL, "", "Failed to create checkout")
)
