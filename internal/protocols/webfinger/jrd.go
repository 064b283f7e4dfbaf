package webfinger

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
)

// JRD is a JSON Resource Descriptor as returned by WebFinger servers.
type JRD struct {
	Subject    string             `json:"subject,omitempty"`
	Aliases    []string           `json:"aliases,omitempty"`
	Properties map[string]*string `json:"properties,omitempty"`
	Links      []Link             `json:"links,omitempty"`
}

// Link is a link relation of a JRD.
type Link struct {
	Rel        string             `json:"rel"`
	Type       string             `json:"type,omitempty"`
	Href       string             `json:"href,omitempty"`
	Template   string             `json:"template,omitempty"`
	Titles     map[string]string  `json:"titles,omitempty"`
	Properties map[string]*string `json:"properties,omitempty"`
}

// JRDError describes one way a document violates the JRD format.
type JRDError struct {
	Msg string
}

func (e *JRDError) Error() string {
	return "invalid JRD: " + e.Msg
}

// ParseJRD decodes a JRD. It does not validate it.
func ParseJRD(data []byte) (*JRD, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	var jrd JRD
	if err := dec.Decode(&jrd); err != nil {
		return nil, &JRDError{Msg: fmt.Sprintf("not a JSON object: %v", err)}
	}
	if dec.More() {
		return nil, &JRDError{Msg: "trailing data after JSON object"}
	}
	return &jrd, nil
}

// Validate returns every problem with the document, joined, or nil.
func (j *JRD) Validate() error {
	var errs []error
	if j.Subject != "" && !isAbsoluteURI(j.Subject) {
		errs = append(errs, &JRDError{Msg: fmt.Sprintf("subject is not an absolute URI: %q", j.Subject)})
	}
	for _, alias := range j.Aliases {
		if !isAbsoluteURI(alias) {
			errs = append(errs, &JRDError{Msg: fmt.Sprintf("alias is not an absolute URI: %q", alias)})
		}
	}
	for key := range j.Properties {
		if !isAbsoluteURI(key) {
			errs = append(errs, &JRDError{Msg: fmt.Sprintf("property name is not an absolute URI: %q", key)})
		}
	}
	for i, link := range j.Links {
		if link.Rel == "" {
			errs = append(errs, &JRDError{Msg: fmt.Sprintf("link %d has no rel", i)})
		}
		if link.Href != "" && !isAbsoluteURI(link.Href) {
			errs = append(errs, &JRDError{Msg: fmt.Sprintf("link %d href is not an absolute URI: %q", i, link.Href)})
		}
	}
	return errors.Join(errs...)
}

// LinksWithRel returns the links with the given relation type.
func (j *JRD) LinksWithRel(rel string) []Link {
	var links []Link
	for _, link := range j.Links {
		if link.Rel == rel {
			links = append(links, link)
		}
	}
	return links
}

func isAbsoluteURI(s string) bool {
	u, err := url.Parse(s)
	return err == nil && u.Scheme != "" && (u.Host != "" || u.Opaque != "")
}
