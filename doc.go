// Package xsd is an XSD-driven lookup and validation engine for a
// domain-specific family of schemas: game AI-script and mission-director
// XML dialects described by XSD files that use only the xs: prefix and
// carry no target namespace.
//
// Given a directory of such schemas, an Engine answers three families of
// question about an XML document authored against them: which element
// declaration governs a given (element, ancestor-chain) pair, what
// attributes that declaration accepts (with their restrictions), and which
// child elements may legally follow a given position in its content model.
package xsd

// XSDNamespace is the namespace URI bound to the xs: prefix in the schemas
// this package reads. The schemas described here carry no target
// namespace of their own; XSDNamespace exists only to tell the meta-schema
// vocabulary (xs:element, xs:sequence, ...) apart from anything else a
// document might contain.
const XSDNamespace = "http://www.w3.org/2001/XMLSchema"
