package domain

// NoticeLevel grades a user-facing notice.
type NoticeLevel string

const (
	NoticeInfo  NoticeLevel = "info"
	NoticeWarn  NoticeLevel = "warn"
	NoticeError NoticeLevel = "error"
)

// Notice codes emitted by the session.
const (
	CodeStructurallyInvalid  = "structurally_invalid"
	CodeParseFailure         = "parse_failure"
	CodeSerializationFailure = "serialization_failure"
	CodeDownloadFailure      = "download_failure"
)

// Notice is a blocking, user-visible message.
type Notice struct {
	Level   NoticeLevel `json:"level"`
	Code    string      `json:"code"`
	Message string      `json:"message"`
}
