package models

// SliceStatus is the lifecycle of one piece of fetched data.
type SliceStatus string

const (
	SliceIdle    SliceStatus = "idle"
	SliceLoading SliceStatus = "loading"
	SliceReady   SliceStatus = "ready"
	SliceError   SliceStatus = "error"
)

// Slice is a tagged state: Data is meaningful only when Ready, Reason only when Error.
type Slice[T any] struct {
	Status SliceStatus `json:"status"`
	Data   T           `json:"data"`
	Reason string      `json:"reason,omitempty"`
}

func Idle[T any]() Slice[T] { return Slice[T]{Status: SliceIdle} }

func Loading[T any]() Slice[T] { return Slice[T]{Status: SliceLoading} }

func Ready[T any](data T) Slice[T] { return Slice[T]{Status: SliceReady, Data: data} }

func Failed[T any](reason string) Slice[T] { return Slice[T]{Status: SliceError, Reason: reason} }

// TableCard is a table as the grid renders it.
type TableCard struct {
	Table
	StartedAtLabel string `json:"started_at_label,omitempty"`
	Printing       bool   `json:"printing"`
}

// TableView is a point-in-time snapshot of one session's screen state.
type TableView struct {
	Branch       string             `json:"branch"`
	SelectedRoom string             `json:"selected_room"`
	Rooms        Slice[[]Room]      `json:"rooms"`
	Tables       Slice[[]TableCard] `json:"tables"`
	RoomCounts   Slice[RoomCounts]  `json:"room_counts"`
}
