package domain

import "errors"

var (
	// ErrPaymentNotSucceeded indicates that the payment has not reached a
	// terminal succeeded state at the processor.
	ErrPaymentNotSucceeded = errors.New("payment not successful")
	// ErrOwnerMismatch indicates that the payment was not created for the
	// caller. Security relevant; details are logged, never returned.
	ErrOwnerMismatch = errors.New("unauthorized payment intent")
	// ErrConfirmationFailed indicates that the processor could not be
	// consulted to verify the payment.
	ErrConfirmationFailed = errors.New("payment confirmation failed")
)
