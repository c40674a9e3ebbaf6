package render

import "errors"

// Fatal generation errors. Callers match them with errors.Is; image fetch
// failures never surface here because they are recovered with fallbacks.
var (
	ErrMissingID       = errors.New("record id is required")
	ErrUnknownKind     = errors.New("unknown document kind")
	ErrKindMismatch    = errors.New("record kind does not match requested kind")
	ErrInvalidAmount   = errors.New("amount is not a finite number")
	ErrInvalidTaxRate  = errors.New("tax rate must be a fraction in [0, 1)")
	ErrLayoutInvariant = errors.New("layout invariant violated")
	ErrOutput          = errors.New("pdf output failed")
)

// GenerationError is returned for every fatal failure of Engine.Generate.
// No partial document accompanies it.
type GenerationError struct {
	Op         string
	DocumentID string
	Err        error
}

func (e *GenerationError) Error() string {
	if e.DocumentID == "" {
		return "generate " + e.Op + ": " + e.Err.Error()
	}
	return "generate " + e.Op + " [" + e.DocumentID + "]: " + e.Err.Error()
}

func (e *GenerationError) Unwrap() error { return e.Err }

// IsInputError reports whether err was caused by the caller's record rather
// than by the engine or its output stage. Retrying such errors is pointless.
func IsInputError(err error) bool {
	return errors.Is(err, ErrMissingID) ||
		errors.Is(err, ErrUnknownKind) ||
		errors.Is(err, ErrKindMismatch) ||
		errors.Is(err, ErrInvalidAmount) ||
		errors.Is(err, ErrInvalidTaxRate)
}
