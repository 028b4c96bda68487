package dto

import "time"

type FixedBlockRequest struct {
	ID    string    `json:"id"`
	Date  string    `json:"date"`
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
	Title string    `json:"title"`
}

type FixedBlockResponse struct {
	ID    string    `json:"id"`
	Date  string    `json:"date"`
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
	Title string    `json:"title"`
}

type ListBlocksResponse struct {
	Blocks []FixedBlockResponse `json:"blocks"`
}
