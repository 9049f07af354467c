package push

import "github.com/zeebo/errs"

// ErrConfiguration is the class of errors raised when the worker config is
// missing or cannot be used to initialize the messaging app.
var ErrConfiguration = errs.Class("push configuration")
