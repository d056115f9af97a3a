package config

import (
	"fmt"
)

type CacheKeyStruct struct{}

func NewCacheKeyStruct() *CacheKeyStruct {
	return &CacheKeyStruct{}
}

// SessionAnswersKey returns the cache key mirroring a session's answer vector
func (r *CacheKeyStruct) SessionAnswersKey(sessionID string) string {
	return fmt.Sprintf("session:%s:answers", sessionID)
}

// SessionResultKey returns the cache key for a session's final result
func (r *CacheKeyStruct) SessionResultKey(sessionID string) string {
	return fmt.Sprintf("session:%s:result", sessionID)
}

// SectionPaperKey returns the cache key for a section's candidate-facing paper
func (r *CacheKeyStruct) SectionPaperKey(sectionID string) string {
	return fmt.Sprintf("section:%s:paper", sectionID)
}

var CacheKey = NewCacheKeyStruct()
