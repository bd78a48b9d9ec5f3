// Package activitymap turns account activity events into a flat record that
// log pipelines and audit stores can consume without knowing the account
// package.
package activitymap

import (
	"context"
	"strings"
	"time"

	account "github.com/goliatone/go-blog-account"
)

const (
	// MetadataKeyEmail holds the masked email of the event subject.
	MetadataKeyEmail = "email"
)

const (
	defaultChannel = "account"
	defaultActorID = "anonymous"

	ObjectTypeUser = "user"
	ObjectTypeBlog = "blog"
)

// Record is the transport agnostic shape of an activity event.
type Record struct {
	ActorID    string         `json:"actor_id"`
	Verb       string         `json:"verb"`
	ObjectType string         `json:"object_type,omitempty"`
	ObjectID   string         `json:"object_id,omitempty"`
	Channel    string         `json:"channel,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	OccurredAt time.Time      `json:"occurred_at"`
}

type Option func(*options)

type options struct {
	channel       string
	actorFallback string
	maskEmail     bool
	now           func() time.Time
}

// WithChannel sets the channel stamped on every record.
func WithChannel(channel string) Option {
	return func(o *options) {
		o.channel = strings.TrimSpace(channel)
	}
}

// WithActorFallback is used as actor id for events with no user, e.g. a
// failed login for an unknown email.
func WithActorFallback(actorID string) Option {
	return func(o *options) {
		o.actorFallback = strings.TrimSpace(actorID)
	}
}

// WithClearEmail keeps the email unmasked in the metadata.
func WithClearEmail() Option {
	return func(o *options) {
		o.maskEmail = false
	}
}

func resolve(opts []Option) options {
	o := options{
		channel:       defaultChannel,
		actorFallback: defaultActorID,
		maskEmail:     true,
		now:           time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	return o
}

// Normalize maps an account.ActivityEvent to a Record.
func Normalize(event account.ActivityEvent, opts ...Option) Record {
	o := resolve(opts)
	return normalize(event, o)
}

func normalize(event account.ActivityEvent, o options) Record {
	userID := strings.TrimSpace(event.UserID)

	rec := Record{
		ActorID:    firstNonEmpty(userID, o.actorFallback),
		Verb:       verb(event.EventType),
		ObjectType: objectType(event.EventType),
		ObjectID:   userID,
		Channel:    o.channel,
		Metadata:   cloneMap(event.Metadata),
		OccurredAt: event.OccurredAt,
	}

	if rec.ObjectType == ObjectTypeBlog {
		rec.ObjectID = ObjectTypeBlog
	}

	if rec.OccurredAt.IsZero() {
		rec.OccurredAt = o.now().UTC()
	}

	if email := strings.TrimSpace(event.Email); email != "" {
		if o.maskEmail {
			email = MaskEmail(email)
		}
		if rec.Metadata == nil {
			rec.Metadata = map[string]any{}
		}
		rec.Metadata[MetadataKeyEmail] = email
	}

	return rec
}

// LogSink writes a normalized record per event to l.
func LogSink(l account.Logger, opts ...Option) account.ActivitySink {
	if l == nil {
		l = account.NopLogger()
	}
	o := resolve(opts)

	return account.ActivitySinkFunc(func(_ context.Context, event account.ActivityEvent) error {
		rec := normalize(event, o)
		l.Info("activity",
			"verb", rec.Verb,
			"actor_id", rec.ActorID,
			"object_type", rec.ObjectType,
			"object_id", rec.ObjectID,
			"channel", rec.Channel,
			"metadata", rec.Metadata,
			"occurred_at", rec.OccurredAt,
		)
		return nil
	})
}

// MaskEmail keeps the first letter of the local part and the domain,
// "alice@x.com" becomes "a***@x.com".
func MaskEmail(email string) string {
	at := strings.LastIndex(email, "@")
	if at <= 0 {
		return "***"
	}
	return email[:1] + "***" + email[at:]
}

// verb drops the event namespace, "account.login.success" is "login.success"
func verb(t account.ActivityEventType) string {
	s := string(t)
	if i := strings.Index(s, "."); i >= 0 {
		return s[i+1:]
	}
	return s
}

func objectType(t account.ActivityEventType) string {
	if strings.HasPrefix(string(t), ObjectTypeBlog+".") {
		return ObjectTypeBlog
	}
	return ObjectTypeUser
}

func cloneMap(in map[string]any) map[string]any {
	if len(in) == 0 {
		return nil
	}
	out := make(map[string]any, len(in))
	for key, value := range in {
		out[key] = value
	}
	return out
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if value != "" {
			return value
		}
	}
	return ""
}
