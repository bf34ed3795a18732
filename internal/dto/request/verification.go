package request

// SendCodeRequest carries exactly one meaningful contact, chosen by Type.
type SendCodeRequest struct {
	Email string `json:"email,omitempty" validate:"required_if=Type email,omitempty,email"`
	Phone string `json:"phone,omitempty" validate:"required_if=Type phone"`
	Type  string `json:"type" validate:"required,oneof=email phone"`
}

func (r SendCodeRequest) Contact() string {
	if r.Type == "phone" {
		return r.Phone
	}
	return r.Email
}

type VerifyCodeRequest struct {
	Email string `json:"email,omitempty" validate:"required_if=Type email"`
	Phone string `json:"phone,omitempty" validate:"required_if=Type phone"`
	Code  string `json:"code" validate:"required"`
	Type  string `json:"type" validate:"required,oneof=email phone"`
}

func (r VerifyCodeRequest) Contact() string {
	if r.Type == "phone" {
		return r.Phone
	}
	return r.Email
}
