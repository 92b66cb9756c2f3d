package orchestrators

import "errors"

// ErrLogoutNotConfirmed is returned when sign-out is requested without the confirmation prompt.
var ErrLogoutNotConfirmed = errors.New("logout requires confirmation")
