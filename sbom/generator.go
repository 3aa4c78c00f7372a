/*
Copyright © 2025 Jayson Grace <jayson.e.grace@gmail.com>

Permission is hereby granted, free of charge, to any person obtaining a copy
of this software and associated documentation files (the "Software"), to deal
in the Software without restriction, including without limitation the rights
to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
copies of the Software, and to permit persons to whom the Software is
furnished to do so, subject to the following conditions:

The above copyright notice and this permission notice shall be included in
all copies or substantial portions of the Software.

THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
THE SOFTWARE.
*/

// Package sbom assembles the software bill of materials recorded for a JDK
// build.
package sbom

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	cdx "github.com/CycloneDX/cyclonedx-go"
	"github.com/google/uuid"

	"github.com/cowdogmoo/jdkbuild/errors"
)

// Generator builds an SBOM document one call at a time. Components are
// addressed by name.
type Generator interface {
	CreateDocument() error
	SetDefaultMetadata(name, version string, timestamp time.Time)
	AddMetadataComponent(name, version, description string)
	AddMetadataProperty(name, value string)
	AddComponent(name, version, description string)
	AddComponentProperty(component, name, value string) error
	AddComponentPropertyFromFile(component, name, path string) error
	AddComponentHash(component, sha256 string) error
	AddTool(name, version string)
	Serialize(w io.Writer) error
}

// CycloneDXGenerator implements Generator with a CycloneDX JSON document.
type CycloneDXGenerator struct {
	// NewSerial returns the document serial number; defaults to a random UUID.
	NewSerial func() (string, error)

	bom *cdx.BOM
}

// NewCycloneDXGenerator returns a generator with random serial numbers.
func NewCycloneDXGenerator() *CycloneDXGenerator {
	return &CycloneDXGenerator{}
}

// CreateDocument implements Generator.
func (g *CycloneDXGenerator) CreateDocument() error {
	newSerial := g.NewSerial
	if newSerial == nil {
		newSerial = func() (string, error) {
			id, err := uuid.NewRandom()
			return id.String(), err
		}
	}
	serial, err := newSerial()
	if err != nil {
		return errors.Wrap("generate sbom serial number", "", err)
	}

	g.bom = cdx.NewBOM()
	g.bom.SerialNumber = "urn:uuid:" + serial
	g.bom.Metadata = &cdx.Metadata{
		Properties: &[]cdx.Property{},
		Tools:      &cdx.ToolsChoice{Components: &[]cdx.Component{}},
	}
	g.bom.Components = &[]cdx.Component{}
	return nil
}

// SetDefaultMetadata implements Generator.
func (g *CycloneDXGenerator) SetDefaultMetadata(name, version string, timestamp time.Time) {
	g.bom.Metadata.Timestamp = timestamp.UTC().Format(time.RFC3339)
	g.bom.Metadata.Supplier = &cdx.OrganizationalEntity{Name: name}
	g.bom.Version = 1
	if version != "" {
		g.AddMetadataProperty("Version", version)
	}
}

// AddMetadataComponent implements Generator.
func (g *CycloneDXGenerator) AddMetadataComponent(name, version, description string) {
	g.bom.Metadata.Component = &cdx.Component{
		BOMRef:      name,
		Type:        cdx.ComponentTypeFramework,
		Name:        name,
		Version:     version,
		Description: description,
	}
}

// AddMetadataProperty implements Generator.
func (g *CycloneDXGenerator) AddMetadataProperty(name, value string) {
	*g.bom.Metadata.Properties = append(*g.bom.Metadata.Properties, cdx.Property{Name: name, Value: value})
}

// AddComponent implements Generator.
func (g *CycloneDXGenerator) AddComponent(name, version, description string) {
	*g.bom.Components = append(*g.bom.Components, cdx.Component{
		BOMRef:      name,
		Type:        cdx.ComponentTypeLibrary,
		Name:        name,
		Version:     version,
		Description: description,
	})
}

func (g *CycloneDXGenerator) component(name string) (*cdx.Component, error) {
	for i := range *g.bom.Components {
		if (*g.bom.Components)[i].Name == name {
			return &(*g.bom.Components)[i], nil
		}
	}
	return nil, fmt.Errorf("sbom component %q does not exist", name)
}

// AddComponentProperty implements Generator.
func (g *CycloneDXGenerator) AddComponentProperty(component, name, value string) error {
	c, err := g.component(component)
	if err != nil {
		return err
	}
	if c.Properties == nil {
		c.Properties = &[]cdx.Property{}
	}
	*c.Properties = append(*c.Properties, cdx.Property{Name: name, Value: value})
	return nil
}

// AddComponentPropertyFromFile implements Generator. A missing file is a
// fatal error naming the property.
func (g *CycloneDXGenerator) AddComponentPropertyFromFile(component, name, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return errors.New(errors.KindMissingPropertySource,
			fmt.Sprintf("sbom property %q of %s has no source file %s", name, component, path), err)
	}
	return g.AddComponentProperty(component, name, strings.TrimSpace(string(data)))
}

// AddComponentHash implements Generator.
func (g *CycloneDXGenerator) AddComponentHash(component, sha256 string) error {
	c, err := g.component(component)
	if err != nil {
		return err
	}
	if c.Hashes == nil {
		c.Hashes = &[]cdx.Hash{}
	}
	*c.Hashes = append(*c.Hashes, cdx.Hash{Algorithm: cdx.HashAlgoSHA256, Value: sha256})
	return nil
}

// AddTool implements Generator.
func (g *CycloneDXGenerator) AddTool(name, version string) {
	*g.bom.Metadata.Tools.Components = append(*g.bom.Metadata.Tools.Components, cdx.Component{
		Type:    cdx.ComponentTypeApplication,
		Name:    name,
		Version: version,
	})
}

// Serialize implements Generator.
func (g *CycloneDXGenerator) Serialize(w io.Writer) error {
	enc := cdx.NewBOMEncoder(w, cdx.BOMFileFormatJSON)
	enc.SetPretty(true)
	return enc.Encode(g.bom)
}
