package clinic

type GetManyClinicResponse []ClinicResponse

type ClinicResponse struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

func (r *ClinicResponse) PopulateFromEntity(c Clinic) {
	r.ID = c.ID
	r.Name = c.Name
	r.Description = c.Description
}
