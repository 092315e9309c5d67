// Package validator applies small, composable validation rules and
// reports failures per field.
//
//	err := validator.Apply(
//		validator.RequiredString("email", v).WithMessage("Email is required"),
//		validator.ValidEmail("email", v).WithMessage("Please enter a valid email"),
//	)
//	if ve := validator.Extract(err); ve != nil {
//		fieldErrors = ve.Map()
//	}
package validator
