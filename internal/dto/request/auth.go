package request

type RegisterRequest struct {
	Name         string `json:"name" validate:"required,min=2,max=100"`
	Email        string `json:"email" validate:"required,email"`
	Phone        string `json:"phone" validate:"required,ke_phone"`
	Password     string `json:"password" validate:"required,min=6"`
	AccountKind  string `json:"account_kind" validate:"required,oneof=customer business"`
	BusinessName string `json:"business_name" validate:"required_if=AccountKind business,max=150"`
	Channel      string `json:"channel" validate:"omitempty,oneof=email phone"`
}

type ResendCodeRequest struct {
	Channel string `json:"channel" validate:"required,oneof=email phone"`
}

type ConfirmCodeRequest struct {
	Code string `json:"code" validate:"required"`
}

type LoginRequest struct {
	Email       string `json:"email" validate:"required,email"`
	Password    string `json:"password" validate:"required"`
	AccountKind string `json:"account_kind" validate:"required,oneof=customer business"`
}

type SwitchAccountRequest struct {
	AccountKind string `json:"account_kind" validate:"required,oneof=customer business"`
}
