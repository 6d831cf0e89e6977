package errors

// Convenience constructors for the narrow error taxonomy the build pipeline uses.

// Config errors

func ConfigNotFound(path string) *BookError {
	return New(CategoryConfig, SeverityFatal, "configuration file not found").
		WithContext("path", path)
}

func ConfigInvalid(reason string, cause error) *BookError {
	return Wrap(cause, CategoryConfig, SeverityFatal, "invalid configuration").
		WithContext("reason", reason)
}

func ValidationFailed(field, reason string) *BookError {
	return New(CategoryValidation, SeverityFatal, "validation failed").
		WithContext("field", field).
		WithContext("reason", reason)
}

// Content tree errors

// ContentMetadataError marks a content file whose frontmatter header is
// unparsable or missing a required field. Always fatal: the build aborts and
// the offending path is surfaced to the user.
func ContentMetadataError(path, reason string, cause error) *BookError {
	return Wrap(cause, CategoryContent, SeverityFatal, "invalid page metadata").
		WithContext("path", path).
		WithContext("reason", reason)
}

// ContentConflictError marks two content files resolving to the same output
// location. Always fatal.
func ContentConflictError(outputPath, firstFile, secondFile string) *BookError {
	return New(CategoryConflict, SeverityFatal, "content files resolve to the same output path").
		WithContext("path", secondFile).
		WithContext("output_path", outputPath).
		WithContext("conflicts_with", firstFile)
}

// ReferenceWarning marks an internal link pointing at a page that does not
// exist. Non-fatal: work-in-progress sections legitimately reference pages
// that are not written yet.
func ReferenceWarning(sourcePath, target string) *BookError {
	return New(CategoryReference, SeverityWarning, "link target does not exist").
		WithContext("path", sourcePath).
		WithContext("target", target)
}

// Build pipeline errors

func RenderError(cause error) *BookError {
	return Wrap(cause, CategoryRender, SeverityFatal, "static renderer failed")
}

func ThemeError(theme string, cause error) *BookError {
	return Wrap(cause, CategoryTheme, SeverityFatal, "theme acquisition failed").
		WithContext("theme", theme)
}

func WorkspaceError(operation string, cause error) *BookError {
	return Wrap(cause, CategoryFileSystem, SeverityFatal, "workspace operation failed").
		WithContext("operation", operation)
}

func InternalError(message string, cause error) *BookError {
	return Wrap(cause, CategoryInternal, SeverityFatal, message)
}
