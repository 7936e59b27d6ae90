package deepface

// RepresentRequest for POST /represent
type RepresentRequest struct {
	Img              string `json:"img"`      // data URI with a base64 encoded JPEG
	Model            string `json:"model"`    // "Dlib", "Facenet512", etc
	Detector         string `json:"detector"` // "retinaface", "mtcnn", etc
	EnforceDetection bool   `json:"enforce_detection"`
}

// RepresentResponse from POST /represent
type RepresentResponse struct {
	Results []RepresentResult `json:"results"`
}

// RepresentResult is one face. With detection not enforced DeepFace returns
// the whole frame with a zero face_confidence when it finds no face.
type RepresentResult struct {
	Embedding      []float64  `json:"embedding"`
	FacialArea     FacialArea `json:"facial_area"`
	FaceConfidence float64    `json:"face_confidence"`
}

type FacialArea struct {
	X int `json:"x"`
	Y int `json:"y"`
	W int `json:"w"`
	H int `json:"h"`
}
