package transport

type RegisterRequest struct {
	FirstName string `json:"firstName" validate:"required,max=100"`
	LastName  string `json:"lastName" validate:"required,max=100"`
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,min=8,max=72"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type IDResponse struct {
	ID uint `json:"id"`
}

type TenantRequest struct {
	Name    string `json:"name" validate:"required,max=100"`
	Address string `json:"address" validate:"required,max=255"`
}

type CreateUserRequest struct {
	FirstName string `json:"firstName" validate:"required,max=100"`
	LastName  string `json:"lastName" validate:"required,max=100"`
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,min=8,max=72"`
	Role      string `json:"role" validate:"omitempty,oneof=admin manager customer"`
	TenantID  *uint  `json:"tenantId" validate:"omitempty,gt=0"`
}

// UpdateUserRequest leaves nil fields untouched. A tenantId of 0 detaches the user.
type UpdateUserRequest struct {
	FirstName *string `json:"firstName" validate:"omitempty,min=1,max=100"`
	LastName  *string `json:"lastName" validate:"omitempty,min=1,max=100"`
	Role      *string `json:"role" validate:"omitempty,oneof=admin manager customer"`
	TenantID  *uint   `json:"tenantId"`
}

type ListQuery struct {
	CurrentPage int `query:"currentPage"`
	PerPage     int `query:"perPage"`
}
