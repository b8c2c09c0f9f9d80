package request

type GenerateInventoryRequest struct {
	DaysAhead int `json:"days_ahead" validate:"required,min=1,max=365"`
}

type StartSchedulerRequest struct {
	Name string `json:"name" validate:"required,oneof=inventory expire-pending"`
	Cron string `json:"cron" validate:"required"`
}

// StopSchedulerRequest stops one job, or all of them when Name is empty.
type StopSchedulerRequest struct {
	Name string `json:"name" validate:"omitempty,oneof=inventory expire-pending"`
}

type UpdateCapacityRequest struct {
	SeatCount int `json:"seat_count" validate:"required,min=1,max=102"`
}
