package progress

import (
	"fmt"
	"sync"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/Ning0612/Filegraph/internal/domain"
)

// Reporter receives record stream events for one root session
type Reporter interface {
	// Connected marks the stream as open for root
	Connected(root string)
	// Record reports an accepted record
	Record(path string, size int64)
	// Rejected reports a record refused as a data error
	Rejected(path string, err error)
	// ProtocolError reports an error message received from the stream
	ProtocolError(message string)
	// TransportError reports a connection-level failure
	TransportError(err error)
	// Closed reports the end of the stream
	Closed(clean bool)
}

// Callback is a function that receives stream updates
type Callback func(update Update)

// Update represents a stream status update
type Update struct {
	Type UpdateType
	Root string

	// CurrentPath is the record that triggered the update
	CurrentPath  string
	CurrentBytes int64

	Records          int
	Rejected         int
	BytesTotal       int64
	RecordsPerSecond float64

	// Message is the status line shown to the user
	Message string
	Error   error
}

// UpdateType indicates the type of stream update
type UpdateType int

const (
	UpdateConnected UpdateType = iota
	UpdateRecord
	UpdateRejected
	UpdateProtocolError
	UpdateTransportError
	UpdateClosed
	UpdateLost
)

func (t UpdateType) String() string {
	switch t {
	case UpdateConnected:
		return "connected"
	case UpdateRecord:
		return "record"
	case UpdateRejected:
		return "rejected"
	case UpdateProtocolError:
		return "protocol_error"
	case UpdateTransportError:
		return "transport_error"
	case UpdateClosed:
		return "closed"
	case UpdateLost:
		return "lost"
	default:
		return "unknown"
	}
}

// Status lines shown to the user
const (
	MsgConnected     = "WebSocket connected"
	MsgTransport     = "WebSocket error"
	MsgClosed        = "WebSocket closed"
	MsgLost          = "WebSocket lost"
	MsgFoldersFailed = "Failed to fetch folders"
)

// ErrorMessage formats a protocol error for the status line
func ErrorMessage(msg string) string {
	return "Error: " + msg
}

// CallbackReporter implements Reporter with a callback function and keeps running totals
type CallbackReporter struct {
	callback Callback
	mu       sync.Mutex

	root       string
	records    int
	rejected   int
	bytesTotal int64
	message    string
	startTime  time.Time
}

// NewCallbackReporter creates a new CallbackReporter
func NewCallbackReporter(callback Callback) *CallbackReporter {
	return &CallbackReporter{
		callback: callback,
	}
}

// snapshot builds an update from the current totals; caller holds r.mu
func (r *CallbackReporter) snapshot(t UpdateType) Update {
	var rate float64
	if !r.startTime.IsZero() {
		if elapsed := time.Since(r.startTime).Seconds(); elapsed > 0 {
			rate = float64(r.records) / elapsed
		}
	}
	return Update{
		Type:             t,
		Root:             r.root,
		Records:          r.records,
		Rejected:         r.rejected,
		BytesTotal:       r.bytesTotal,
		RecordsPerSecond: rate,
		Message:          r.message,
	}
}

// emit calls the callback outside the lock so callbacks may re-enter the reporter
func (r *CallbackReporter) emit(update Update, callback Callback) {
	if callback != nil {
		callback(update)
	}
}

// Connected marks the stream as open and restarts the rate clock
func (r *CallbackReporter) Connected(root string) {
	r.mu.Lock()
	r.root = root
	r.startTime = time.Now()
	r.message = MsgConnected
	update := r.snapshot(UpdateConnected)
	callback := r.callback
	r.mu.Unlock()

	r.emit(update, callback)
}

// Record counts an accepted record
func (r *CallbackReporter) Record(path string, size int64) {
	r.mu.Lock()
	r.records++
	r.bytesTotal += size
	update := r.snapshot(UpdateRecord)
	update.CurrentPath = path
	update.CurrentBytes = size
	callback := r.callback
	r.mu.Unlock()

	r.emit(update, callback)
}

// Rejected counts a record refused as a data error
func (r *CallbackReporter) Rejected(path string, err error) {
	r.mu.Lock()
	r.rejected++
	update := r.snapshot(UpdateRejected)
	update.CurrentPath = path
	update.Error = err
	callback := r.callback
	r.mu.Unlock()

	r.emit(update, callback)
}

// ProtocolError surfaces a stream error message; the stream keeps listening
func (r *CallbackReporter) ProtocolError(message string) {
	r.mu.Lock()
	r.message = ErrorMessage(message)
	update := r.snapshot(UpdateProtocolError)
	update.Error = fmt.Errorf("%w: %s", domain.ErrProtocol, message)
	callback := r.callback
	r.mu.Unlock()

	r.emit(update, callback)
}

// TransportError reports a connection failure
func (r *CallbackReporter) TransportError(err error) {
	r.mu.Lock()
	r.message = MsgTransport
	update := r.snapshot(UpdateTransportError)
	update.Error = err
	callback := r.callback
	r.mu.Unlock()

	r.emit(update, callback)
}

// Closed reports a clean close or a lost connection
func (r *CallbackReporter) Closed(clean bool) {
	r.mu.Lock()
	t := UpdateClosed
	r.message = MsgClosed
	if !clean {
		t = UpdateLost
		r.message = MsgLost
	}
	update := r.snapshot(t)
	callback := r.callback
	r.mu.Unlock()

	r.emit(update, callback)
}

// SetMessage overrides the status line
func (r *CallbackReporter) SetMessage(msg string) {
	r.mu.Lock()
	r.message = msg
	r.mu.Unlock()
}

// Snapshot returns the current totals without notifying the callback
func (r *CallbackReporter) Snapshot() Update {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.snapshot(UpdateRecord)
}

// NullReporter is a no-op reporter
type NullReporter struct{}

func (NullReporter) Connected(root string)           {}
func (NullReporter) Record(path string, size int64)  {}
func (NullReporter) Rejected(path string, err error) {}
func (NullReporter) ProtocolError(message string)    {}
func (NullReporter) TransportError(err error)        {}
func (NullReporter) Closed(clean bool)               {}

// FormatBytes formats bytes into a human-readable string
func FormatBytes(bytes int64) string {
	if bytes < 0 {
		return "-" + humanize.IBytes(uint64(-bytes))
	}
	return humanize.IBytes(uint64(bytes))
}

// FormatRate formats records per second
func FormatRate(perSecond float64) string {
	return humanize.FormatFloat("#,###.#", perSecond) + " rec/s"
}

// FormatCount formats a count with thousands separators
func FormatCount(n int) string {
	return humanize.Comma(int64(n))
}

// Summary renders a one-line totals string for the status bar
func Summary(u Update) string {
	s := fmt.Sprintf("%s files, %s", FormatCount(u.Records), FormatBytes(u.BytesTotal))
	if u.Rejected > 0 {
		s += fmt.Sprintf(", %s rejected", FormatCount(u.Rejected))
	}
	return s
}
