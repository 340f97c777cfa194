package fleetapi

import "github.com/theirongolddev/costcmp/internal/model"

// workOrderPage is one page of the work order listing.
// NextPage is null on the last page.
type workOrderPage struct {
	Data     []model.CostRecord `json:"data"`
	NextPage *int               `json:"nextPage"`
	Total    int                `json:"total"`
}
