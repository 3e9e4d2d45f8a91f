package models

// PhotoTarget is what a photo is attached to. The set of implementations is
// closed: DefectPhoto and ImprovementPhoto.
type PhotoTarget interface {
	photoTarget()
	TargetID() int
}

type DefectPhoto struct{ DefectID int }

type ImprovementPhoto struct{ ImprovementID int }

func (DefectPhoto) photoTarget()      {}
func (ImprovementPhoto) photoTarget() {}

func (p DefectPhoto) TargetID() int      { return p.DefectID }
func (p ImprovementPhoto) TargetID() int { return p.ImprovementID }

// PhotoUpload is one image file to attach.
type PhotoUpload struct {
	FileName    string
	ContentType string
	Data        []byte
	Description string
}

// Photo is a stored attachment as read back. RelatedType keeps the raw tag
// since historical rows are not guaranteed to use the known values.
type Photo struct {
	ID          int    `json:"photo_id"`
	RelatedType string `json:"related_type"`
	RelatedID   int    `json:"related_id"`
	ImagePath   string `json:"image_path,omitempty"`
	ImageURL    string `json:"image_url,omitempty"`
	Description string `json:"description,omitempty"`
}
