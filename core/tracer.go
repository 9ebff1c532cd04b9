package core

import (
	"go.opentelemetry.io/otel"
)

var tracer = otel.Tracer("github.com/bridgelabs/lane-relayer/core")
