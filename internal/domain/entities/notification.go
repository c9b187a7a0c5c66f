package entities

// NotificationKind discriminates the variants of Notification.
type NotificationKind string

const (
	NotifyState              NotificationKind = "state"
	NotifyTalkChange         NotificationKind = "talk_change"
	NotifyRegistered         NotificationKind = "registered"
	NotifyClientConnected    NotificationKind = "client_connected"
	NotifyClientDisconnected NotificationKind = "client_disconnected"
	NotifyPong               NotificationKind = "pong"
	NotifyBlink              NotificationKind = "blink"
	NotifyError              NotificationKind = "error"
)

// Notification is a tagged sum of every server-originated message: a state
// change, a talk (deck) change, a registration event, or a transient
// signal.
type Notification struct {
	Kind NotificationKind `json:"type"`

	// State backs State and TalkChange.
	State NavState `json:"state,omitempty"`

	// ClientID and Name back Registered/ClientConnected/ClientDisconnected.
	ClientID ClientID `json:"client_id,omitempty"`
	Name     string   `json:"name,omitempty"`

	// Message backs Error.
	Message string `json:"message,omitempty"`
}

// NotifyStateOf builds a State notification.
func NotifyStateOf(state NavState) Notification {
	return Notification{Kind: NotifyState, State: state}
}

// NotifyTalkChangeOf builds a TalkChange notification.
func NotifyTalkChangeOf(state NavState) Notification {
	return Notification{Kind: NotifyTalkChange, State: state}
}

// NotifyErrorOf builds an Error notification.
func NotifyErrorOf(message string) Notification {
	return Notification{Kind: NotifyError, Message: message}
}

// NotifyRegisteredOf builds a Registered notification.
func NotifyRegisteredOf(id ClientID) Notification {
	return Notification{Kind: NotifyRegistered, ClientID: id}
}

// NotifyClientConnectedOf builds a ClientConnected notification.
func NotifyClientConnectedOf(id ClientID, name string) Notification {
	return Notification{Kind: NotifyClientConnected, ClientID: id, Name: name}
}

// NotifyClientDisconnectedOf builds a ClientDisconnected notification.
func NotifyClientDisconnectedOf(id ClientID, name string) Notification {
	return Notification{Kind: NotifyClientDisconnected, ClientID: id, Name: name}
}

// PongNotification and BlinkNotification are the transient, stateless
// signals: they carry no payload and are safe to share as values.
var (
	PongNotification  = Notification{Kind: NotifyPong}
	BlinkNotification = Notification{Kind: NotifyBlink}
)

// IsTransient reports whether the notification is a Pong or Blink: events
// rather than state, coalesced only with another of the same kind in the
// notification bus (§4.D).
func (n Notification) IsTransient() bool {
	return n.Kind == NotifyPong || n.Kind == NotifyBlink
}
