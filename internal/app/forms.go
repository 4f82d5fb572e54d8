package app

// Form schemas checked by validate.First before any backend call.

// SignInForm is the sign-in mode input.
type SignInForm struct {
	Email    string `json:"email" validate:"required,email" msg:"required:Email is required|email:Invalid email address"`
	Password string `json:"password" validate:"required,min=6,max=72,maxbytes=72" msg:"required:Password is required|min:Password must be at least 6 characters|max:Password must be less than 72 characters|maxbytes:Password is too long"`
}

// SignUpForm is the passwordless sign-up mode input.
type SignUpForm struct {
	Email    string `json:"email" validate:"required,email" msg:"required:Email is required|email:Invalid email address"`
	FullName string `json:"fullName" validate:"required,max=100" msg:"required:Full name is required|max:Full name must be less than 100 characters"`
}

// PasswordSignUpForm is the legacy password sign-up input.
type PasswordSignUpForm struct {
	Email    string `json:"email" validate:"required,email" msg:"required:Email is required|email:Invalid email address"`
	Password string `json:"password" validate:"required,min=6,max=72,maxbytes=72" msg:"required:Password is required|min:Password must be at least 6 characters|max:Password must be less than 72 characters|maxbytes:Password is too long"`
	FullName string `json:"fullName" validate:"required,max=100" msg:"required:Full name is required|max:Full name must be less than 100 characters"`
}

// ForgotPasswordForm is the forgot-password mode input.
type ForgotPasswordForm struct {
	Email string `json:"email" validate:"required,email" msg:"required:Email is required|email:Invalid email address"`
}

// GoalForm is a new custom fitness goal.
type GoalForm struct {
	Title  string `json:"title" validate:"required,max=200" msg:"required:Title is required|max:Title must be less than 200 characters"`
	Target int64  `json:"targetValue" validate:"gt=0,lte=1000000" msg:"gt:Must be greater than 0|lte:Value too large"`
}

// GarmentDetailsForm is the last pairing wizard step.
type GarmentDetailsForm struct {
	Name string `json:"name" validate:"required,max=100" msg:"required:Please fill in garment details|max:Garment name must be less than 100 characters"`
	Type string `json:"type" validate:"required,oneof=shirt shorts jacket pants shoes other" msg:"required:Please fill in garment details|oneof:Please select a valid garment type"`
}
