package entities

type tagOperationKind int

const (
	tagOperationSet tagOperationKind = iota + 1
	tagOperationAppend
)

// TagOperation is either a Set (replace the list) or an Append (concatenate,
// duplicates kept). The zero value is invalid; build one with SetTags or AppendTags.
type TagOperation struct {
	kind tagOperationKind
	tags []string
}

func SetTags(tags []string) TagOperation {
	return TagOperation{kind: tagOperationSet, tags: NormalizeTags(tags)}
}

func AppendTags(tags []string) TagOperation {
	return TagOperation{kind: tagOperationAppend, tags: NormalizeTags(tags)}
}

func (op TagOperation) IsSet() bool    { return op.kind == tagOperationSet }
func (op TagOperation) IsAppend() bool { return op.kind == tagOperationAppend }
func (op TagOperation) Valid() bool    { return op.IsSet() || op.IsAppend() }

func (op TagOperation) Tags() []string {
	return NormalizeTags(op.tags)
}

func (op TagOperation) String() string {
	switch op.kind {
	case tagOperationSet:
		return "set"
	case tagOperationAppend:
		return "append"
	default:
		return "invalid"
	}
}
