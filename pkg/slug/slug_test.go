// Copyright (c) 2026 Scriptorium. All rights reserved.

package slug_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/verseworks/scriptorium/pkg/slug"
)

func TestFrom(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"The Book of Psalms", "the-book-of-psalms"},
		{"Génesis", "genesis"},
		{"  Chapter 1:  Intro!! ", "chapter-1-intro"},
		{"---", ""},
		// Digits-only names must not produce a slug that reads as an id.
		{"42", "n-42"},
		{"1:1", "1-1"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, slug.From(tt.in), tt.in)
	}
}
