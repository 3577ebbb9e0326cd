package domain

import "errors"

var (
	ErrNotFound        = errors.New("not found")
	ErrTextGeneration  = errors.New("text generation failed")
	ErrAudioGeneration = errors.New("audio generation failed")
	ErrImageGeneration = errors.New("image generation failed")
	ErrVideoGeneration = errors.New("video generation failed")
	ErrPersistence     = errors.New("persistence failed")
	ErrRateLimited     = errors.New("rate limited")
	ErrTimeout         = errors.New("timed out")
)
