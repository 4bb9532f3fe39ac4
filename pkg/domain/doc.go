/*
Package domain contains the core types of an Arbor editing session.

It defines palette actions, shape creation requests, export artifacts and
validation reports. The package is kept pure and free of I/O so that the
session facade and every adapter share one vocabulary.

# Key Entities

  - ToolAction: A palette entry with a gesture-to-handler mapping.
  - ShapeCreationRequest: What the gesture handler asks the engine shape factory for.
  - ExportArtifact: A serialized diagram ready to be handed to a downloader.
  - ValidationReport: The outcome of the structural check run on save.
*/
package domain
