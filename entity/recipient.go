package entity

import "sort"

type Recipient struct {
	ID           *string           `json:"id,omitempty"`
	UserID       *string           `json:"user_id,omitempty"`
	Email        *string           `json:"email,omitempty"`
	FirstName    *string           `json:"first_name,omitempty"`
	LastName     *string           `json:"last_name,omitempty"`
	CustomFields map[string]string `json:"custom_fields,omitempty"`
	IsActive     *bool             `json:"is_active,omitempty"`
	CreateTime   *uint64           `json:"create_time,omitempty"`
	UpdateTime   *uint64           `json:"update_time,omitempty"`
}

func (e *Recipient) GetID() string {
	if e != nil && e.ID != nil {
		return *e.ID
	}
	return ""
}

func (e *Recipient) GetUserID() string {
	if e != nil && e.UserID != nil {
		return *e.UserID
	}
	return ""
}

func (e *Recipient) GetEmail() string {
	if e != nil && e.Email != nil {
		return *e.Email
	}
	return ""
}

func (e *Recipient) GetFirstName() string {
	if e != nil && e.FirstName != nil {
		return *e.FirstName
	}
	return ""
}

func (e *Recipient) GetLastName() string {
	if e != nil && e.LastName != nil {
		return *e.LastName
	}
	return ""
}

func (e *Recipient) GetIsActive() bool {
	if e != nil && e.IsActive != nil {
		return *e.IsActive
	}
	return false
}

// PlaceholderFields returns the ordered substitution mapping for this
// recipient: first_name and last_name when set, then custom fields in
// key order. Keys absent from the mapping are left verbatim in content.
func (e *Recipient) PlaceholderFields() []*PlaceholderField {
	fields := make([]*PlaceholderField, 0)

	if e.GetFirstName() != "" {
		fields = append(fields, &PlaceholderField{Key: "first_name", Value: e.GetFirstName()})
	}
	if e.GetLastName() != "" {
		fields = append(fields, &PlaceholderField{Key: "last_name", Value: e.GetLastName()})
	}

	if e != nil && len(e.CustomFields) > 0 {
		keys := make([]string, 0, len(e.CustomFields))
		for k := range e.CustomFields {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		for _, k := range keys {
			fields = append(fields, &PlaceholderField{Key: k, Value: e.CustomFields[k]})
		}
	}

	return fields
}
