package forms

// LoginForm only requires both fields; the backend decides whether the
// credentials are right.
type LoginForm struct {
	Email    string `json:"email"    validate:"required"`
	Password string `json:"password" validate:"required"`
}

func (f LoginForm) Validate() error {
	return validateStruct(f)
}

// RegisterForm is the sign-up form including the confirmation field.
type RegisterForm struct {
	Name            string `json:"name"             validate:"required"`
	Email           string `json:"email"            validate:"required,email"`
	Password        string `json:"password"         validate:"required,strongpassword"`
	ConfirmPassword string `json:"confirm_password" validate:"required,eqfield=Password"`
}

// RegisterFeedback is the inline state shown while the user types.
type RegisterFeedback struct {
	Strength       PasswordStrengthReport
	PasswordsMatch bool
	// Mismatch is set as soon as a non-empty confirmation differs.
	Mismatch  string
	CanSubmit bool
}

// Feedback recomputes the inline state from the current field values.
func (f RegisterForm) Feedback() RegisterFeedback {
	fb := RegisterFeedback{
		Strength:       EvaluatePassword(f.Password),
		PasswordsMatch: f.Password == f.ConfirmPassword,
	}
	if f.ConfirmPassword != "" && !fb.PasswordsMatch {
		fb.Mismatch = "Passwords do not match"
	}
	fb.CanSubmit = fb.Strength.IsStrong &&
		fb.PasswordsMatch &&
		f.Name != "" &&
		f.Email != ""
	return fb
}

// Validate is the submit-time check.
func (f RegisterForm) Validate() error {
	return validateStruct(f)
}
