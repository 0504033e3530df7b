package feed

import (
	"errors"
	"fmt"
)

// ErrSubmitting is returned by Composer.Submit while a previous submission
// is still in flight.
var ErrSubmitting = errors.New("a submission is already in progress")

// ErrEmptyPost is returned when a submission has neither content nor an image.
var ErrEmptyPost = errors.New("post must have content or an image")

// ErrContentTooLong is returned when a submission exceeds the content limit.
var ErrContentTooLong = errors.New("content exceeds 280 characters")

// FetchError indicates the initial feed load failed. The feed stays empty;
// callers decide whether to retry.
type FetchError struct {
	Err error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetching posts: %v", e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// UploadError indicates the image was rejected before upload or the upload
// itself failed. No post insert was attempted.
type UploadError struct {
	Err error
}

func (e *UploadError) Error() string {
	return fmt.Sprintf("uploading image: %v", e.Err)
}

func (e *UploadError) Unwrap() error { return e.Err }

// InsertError indicates the post insert failed after any image upload
// succeeded. The uploaded blob is not removed.
type InsertError struct {
	Err error
}

func (e *InsertError) Error() string {
	return fmt.Sprintf("creating post: %v", e.Err)
}

func (e *InsertError) Unwrap() error { return e.Err }
