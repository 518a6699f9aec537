package request

// LoginRequest is the request body for logging in by display name
type LoginRequest struct {
	Username string `json:"username"`
}

// CreateRoomRequest is the request body for creating a room
type CreateRoomRequest struct {
	UserID   string `json:"userId"`
	RoomName string `json:"roomName,omitempty"`
}

// JoinRoomRequest is the request body for joining a room
type JoinRoomRequest struct {
	RoomID string `json:"roomId"`
	UserID string `json:"userId"`
}
