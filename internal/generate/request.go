package generate

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/ziadkadry99/videomind/internal/mindmap"
)

// Request describes the video to build a mind map for. Either a timed
// transcript or plain text is required.
type Request struct {
	Title      string                   `json:"title" validate:"max=200"`
	VideoURL   string                   `json:"video_url" validate:"omitempty,url"`
	Media      string                   `json:"media,omitempty" validate:"max=128"`
	Duration   float64                  `json:"duration" validate:"gte=0"`
	MaxTopics  int                      `json:"max_topics" validate:"omitempty,min=1,max=30"`
	Text       string                   `json:"text" validate:"required_without=Transcript"`
	Transcript []mindmap.TranscriptLine `json:"transcript" validate:"required_without=Text,dive"`
}

// ErrInvalidRequest wraps request validation failures.
var ErrInvalidRequest = errors.New("invalid generation request")

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

// requestValidator reports field errors by their JSON names.
func requestValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New()
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
	})
	return validate
}

// Validate checks the request.
func (r Request) Validate() error {
	err := requestValidator().Struct(r)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag()))
	}
	return fmt.Errorf("%w: %s", ErrInvalidRequest, strings.Join(msgs, "; "))
}
