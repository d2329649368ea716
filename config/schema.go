package config

import "github.com/invopop/jsonschema"

// Schema describes the spec file format for editors and validators.
func Schema() *jsonschema.Schema {
	reflector := jsonschema.Reflector{
		RequiredFromJSONSchemaTags: true,
	}
	schema := reflector.Reflect(new(Spec))
	schema.Title = "Terrain path spec"
	schema.Description = "Terrain source, traversal grid and search settings for terrainpath tools"
	return schema
}
