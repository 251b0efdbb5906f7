// Package deckfmt reads markdown deck files into flashcards.
//
// A deck file is a series of cards separated by "---" lines. Each card is a
// set of prefixed blocks:
//
//	S: Biology          (optional subject, defaults per file)
//	Q: What is an egg tooth?
//	A: A temporary projection a chick uses
//	   to break the shell.
//
// Continuation lines belong to the preceding block. Cards without a question
// are skipped.
package deckfmt

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"studykeet/internal/domain"
)

const (
	subjectPrefix  = "S:"
	questionPrefix = "Q:"
	answerPrefix   = "A:"
)

type section int

const (
	seeking section = iota
	readingSubject
	readingQuestion
	readingAnswer
)

// ParseFile reads a deck file from the given path. defaultSubject is applied
// to cards that carry no S: block of their own.
func ParseFile(path, defaultSubject string) ([]domain.Flashcard, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	cards, err := Parse(file, defaultSubject)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return cards, nil
}

// Parse reads deck content from r and extracts all cards.
func Parse(r io.Reader, defaultSubject string) ([]domain.Flashcard, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var (
		cards   []domain.Flashcard
		current domain.Flashcard
		block   []string
		state   = seeking
	)

	closeBlock := func() {
		if len(block) == 0 {
			return
		}
		content := strings.TrimSpace(strings.Join(block, "\n"))
		switch state {
		case readingSubject:
			current.Subject = content
		case readingQuestion:
			current.Question = content
		case readingAnswer:
			current.Answer = content
		}
		block = nil
	}

	finishCard := func() {
		closeBlock()
		if current.Question != "" {
			if current.Subject == "" {
				current.Subject = defaultSubject
			}
			cards = append(cards, current)
		}
		current = domain.Flashcard{}
		state = seeking
	}

	for scanner.Scan() {
		line := scanner.Text()

		if strings.TrimSpace(line) == "---" {
			finishCard()
			continue
		}

		switch {
		case strings.HasPrefix(line, subjectPrefix):
			closeBlock()
			state = readingSubject
			block = append(block, strings.TrimPrefix(line, subjectPrefix))
		case strings.HasPrefix(line, questionPrefix):
			closeBlock()
			state = readingQuestion
			block = append(block, strings.TrimPrefix(line, questionPrefix))
		case strings.HasPrefix(line, answerPrefix):
			closeBlock()
			state = readingAnswer
			block = append(block, strings.TrimPrefix(line, answerPrefix))
		default:
			if state != seeking {
				block = append(block, line)
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	finishCard()

	return cards, nil
}
