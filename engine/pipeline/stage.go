package pipeline

/**
 * @brief One GPU rendering pass. Activate binds the pass target and, when clear
 * is set, clears it before use. Calling it twice in a row must be safe.
 */
type Stage interface {
	Activate(clear bool)
}

/** @brief A shared texture resource, identified by a serialize id unique within a pipeline. */
type Texture interface {
	SerializeID() uint32
	Name() string
}

/** @brief A GPU program referenced by a stage. */
type Program interface {
	Name() string
}

type AttachmentType uint8

const (
	AttachmentTypeColour AttachmentType = iota
	AttachmentTypeDepth
)

func (at AttachmentType) String() string {
	switch at {
	case AttachmentTypeColour:
		return "colour"
	case AttachmentTypeDepth:
		return "depth"
	default:
		return "unknown"
	}
}

// ParseAttachmentType is the inverse of AttachmentType.String.
func ParseAttachmentType(s string) (AttachmentType, bool) {
	switch s {
	case "colour", "color":
		return AttachmentTypeColour, true
	case "depth":
		return AttachmentTypeDepth, true
	default:
		return 0, false
	}
}

/** @brief Binds a pipeline texture to a stage target slot. */
type Attachment struct {
	Type    AttachmentType
	Texture Texture
}

/**
 * @brief Describes the render target of a stage. A zero Width or Height means
 * the full size of the default framebuffer.
 */
type StageConfig struct {
	Width       uint32
	Height      uint32
	ClearColour [4]float32
	Attachments []Attachment
}
