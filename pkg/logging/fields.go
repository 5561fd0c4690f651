package logging

import "log/slog"

// Domain identifiers

func Survey(id string) slog.Attr {
	return slog.String("survey_id", id)
}

func Room(name string) slog.Attr {
	return slog.String("room", name)
}

func Conn(id string) slog.Attr {
	return slog.String("conn_id", id)
}

func Backend(name string) slog.Attr {
	return slog.String("backend", name)
}

// Request / tracing

func TraceID(id string) slog.Attr {
	return slog.String("trace_id", id)
}

// Error handling

func Err(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.String("err", err.Error())
}
