package entity

type User struct {
	ID         *string `json:"id,omitempty"`
	Email      *string `json:"email,omitempty"`
	FirstName  *string `json:"first_name,omitempty"`
	LastName   *string `json:"last_name,omitempty"`
	IsActive   *bool   `json:"is_active,omitempty"`
	CreateTime *uint64 `json:"create_time,omitempty"`
	UpdateTime *uint64 `json:"update_time,omitempty"`
}

func (e *User) GetID() string {
	if e != nil && e.ID != nil {
		return *e.ID
	}
	return ""
}

func (e *User) GetEmail() string {
	if e != nil && e.Email != nil {
		return *e.Email
	}
	return ""
}

func (e *User) GetFirstName() string {
	if e != nil && e.FirstName != nil {
		return *e.FirstName
	}
	return ""
}

func (e *User) GetLastName() string {
	if e != nil && e.LastName != nil {
		return *e.LastName
	}
	return ""
}

func (e *User) GetIsActive() bool {
	if e != nil && e.IsActive != nil {
		return *e.IsActive
	}
	return false
}
