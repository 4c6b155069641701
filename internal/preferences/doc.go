// Package preferences applies user preference changes to persisted state.
//
// Language codes are BCP 47 tags ("en", "pt-BR"). Post languages may list
// several codes separated by commas ("en,ja"); the post language history
// keeps the six most recent distinct post languages, newest first.
package preferences
