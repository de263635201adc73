package service

import "errors"

var (
	// Deliberately generic to avoid account enumeration.
	ErrInvalidCredentials = errors.New("incorrect email and/or password")
	ErrEmailUnconfirmed   = errors.New("please confirm your email first")
	ErrInvalidToken       = errors.New("token is invalid or has expired, please try again")
	ErrUserGone           = errors.New("the user this token belongs to no longer exists")
	ErrPasswordChanged    = errors.New("password was changed recently, please log in again")
	ErrPasswordMismatch   = errors.New("passwords don't match")
	ErrSamePassword       = errors.New("this is the same old password, please choose a new one")
	ErrWrongPassword      = errors.New("your current password is wrong")
	ErrEmailDelivery      = errors.New("there was an error sending the email, try again later")

	ErrCategoryNameTooLong    = errors.New("category name cannot exceed 30 characters")
	ErrDisplayOrderOutOfRange = errors.New("display order must be between 1 and 100")
	ErrPriceOutOfRange        = errors.New("price must be between 1 and 1000")
	ErrCountTooSmall          = errors.New("count must be at least 1")

	ErrIllegalTransition = errors.New("order status transition not allowed")
	ErrNoCheckoutSession = errors.New("order has no checkout session yet")
)
