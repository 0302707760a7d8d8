package httpdto

// StaffLoginRequest is used for POST /auth/staff/login
type StaffLoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// CustomerLoginRequest is used for POST /auth/customer/login
type CustomerLoginRequest struct {
	Name      string `json:"name" binding:"required"`
	TableID   uint   `json:"tableId" binding:"required"`
	Allergies string `json:"allergies,omitempty"`
}

type PrincipalDTO struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
	Role string `json:"role"`
}

// AuthResponse is returned by both login endpoints
type AuthResponse struct {
	AccessToken string       `json:"access_token"`
	ExpiresIn   int64        `json:"expires_in"`
	Principal   PrincipalDTO `json:"principal"`
}
