package store

import (
	"entgo.io/ent/dialect/sql/schema"
	"entgo.io/ent/schema/field"
)

// Column names shared by the event tables.
const (
	colID        = "id"
	colSequence  = "sequence"
	colTimestamp = "timestamp_ms"
	colSessionID = "session_id"
)

// eventTable builds a table with the columns every event carries: an
// auto-increment id, the global sequence and a millisecond timestamp.
func eventTable(name string, cols ...*schema.Column) *schema.Table {
	id := &schema.Column{Name: colID, Type: field.TypeInt, Increment: true}
	seq := &schema.Column{Name: colSequence, Type: field.TypeInt64, Unique: true}
	ts := &schema.Column{Name: colTimestamp, Type: field.TypeInt64}

	t := schema.NewTable(name).AddPrimary(id).AddColumn(seq).AddColumn(ts)
	for _, c := range cols {
		t.AddColumn(c)
	}
	return t
}

func text(name string) *schema.Column {
	return &schema.Column{Name: name, Type: field.TypeString, Size: 1 << 20, Default: ""}
}

func str(name string) *schema.Column {
	return &schema.Column{Name: name, Type: field.TypeString, Default: ""}
}

func integer(name string) *schema.Column {
	return &schema.Column{Name: name, Type: field.TypeInt, Default: 0}
}

var (
	chatEventsTable = eventTable(tableChatEvents,
		str(colSessionID),
		str("tab"),
		str("message_id"),
		str("kind"),
		str("author"),
		str("status"),
		integer("attempts"),
		text("content"),
		str("error"),
		str("failure"),
		str("attachment_kind"),
	)

	llmEventsTable = eventTable(tableLLMEvents,
		str(colSessionID),
		str("provider"),
		str("model"),
		str("purpose"),
		integer("input_tokens"),
		integer("output_tokens"),
		&schema.Column{Name: "latency_ms", Type: field.TypeInt64, Default: 0},
		&schema.Column{Name: "success", Type: field.TypeBool, Default: false},
		text("error_message"),
		text("request_body"),
		text("response_body"),
	)

	tables = []*schema.Table{chatEventsTable, llmEventsTable}
)

const (
	tableChatEvents = "chat_events"
	tableLLMEvents  = "llm_request_events"
)

func init() {
	chatEventsTable.AddIndex("chat_events_session", false, []string{colSessionID, colSequence})
	llmEventsTable.AddIndex("llm_request_events_purpose", false, []string{"purpose"})
	llmEventsTable.AddIndex("llm_request_events_model", false, []string{"model"})
}
