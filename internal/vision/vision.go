package vision

import "context"

// Engine provides the two capabilities the intake pipeline consumes:
// text recognition and face counting. Image data is expected to already
// be PNG. Implementations may fail; the pipeline downgrades failures to
// "no signal for this photo".
type Engine interface {
	// RecognizeText returns the text visible in the image, or an empty
	// string when there is none.
	RecognizeText(ctx context.Context, image []byte) (string, error)

	// CountFaces returns how many human faces appear in the image.
	CountFaces(ctx context.Context, image []byte) (int, error)

	// Close releases the engine's resources.
	Close() error
}

// textPrompt asks the model to act as a plain OCR engine. The downstream
// classifier and extractor work on raw lines, so the transcription must
// preserve line structure and must not summarize.
const textPrompt = `Transcribe all text visible in this image, exactly as written.

Rules:
- Preserve the original line breaks: one output line per line in the image.
- Do not translate, summarize, reorder or annotate anything.
- Do not use markdown formatting or code blocks.
- If the image contains no readable text, return an empty response.`

// facePrompt asks the model for a bare face count.
const facePrompt = `Count the number of human faces visible in this image.

Reply with a single non-negative integer and nothing else. If there are no
human faces, reply with 0.`
