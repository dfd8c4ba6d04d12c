package logging

// Field keys shared by every component so log lines can be filtered consistently.
const (
	FieldPeriod      = "period"
	FieldFile        = "file"
	FieldRow         = "row"
	FieldLayout      = "layout"
	FieldStage       = "stage"
	FieldCategory    = "category"
	FieldDescription = "description"
	FieldConfidence  = "confidence"
	FieldFingerprint = "fingerprint"
	FieldCount       = "count"
	FieldReason      = "reason"
	FieldStatus      = "status"
	FieldDocument    = "document"
	FieldOutputFile  = "output_file"
	FieldDuration    = "duration"
	FieldMLStatus    = "ml_status"
	FieldRetrained   = "retrained"
)
