package dto

// UpsertAvailabilityRequest 更新出欠
// 指针类型使 0（欠席）也能通过 required 校验
type UpsertAvailabilityRequest struct {
	Availability *int `json:"availability" binding:"required"`
}

// AvailabilityAck 出欠更新确认，固定结构不包裹统一信封
type AvailabilityAck struct {
	Status       string `json:"status"`
	Availability int    `json:"availability"`
}
