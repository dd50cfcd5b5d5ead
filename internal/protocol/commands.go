package protocol

// Command tokens understood by the Tool.
const (
	// Tool
	CmdGetVersion    = "get_version"
	CmdGetCommands   = "get_commands"
	CmdGetModels     = "get_models"
	CmdSelectModel   = "select_model"
	CmdGetPath       = "get_path"
	CmdGetSampleRate = "get_samplerate"
	CmdSetSampleRate = "set_samplerate"

	// Repository
	CmdQueryPatchNames = "query_patchnames"
	CmdQueryPatch      = "query_patch"
	CmdQueryCategories = "query_categories"
	CmdQueryTags       = "query_tags"

	// Patch
	CmdLoadPatch    = "load_patch"
	CmdSavePatch    = "save_patch"
	CmdRenderPatch  = "render_patch"
	CmdGetModelName = "get_modelname"
	CmdGetPatchName = "get_patchname"
	CmdGetVariation = "get_variation"
	CmdSetVariation = "set_variation"
	CmdGetDrawing   = "get_drawing"
	CmdSetDrawing   = "set_drawing"

	// Meta parameters
	CmdGetMetaCount = "get_metacount"
	CmdGetMetaNames = "get_metanames"
	CmdGetMetaName  = "get_metaname"
	CmdGetMetaValue = "get_metavalue"
	CmdSetMetaValue = "set_metavalue"

	// Automation curves
	CmdGetCurvesCount = "get_curvescount"
	CmdGetCurveNames  = "get_curvenames"
	CmdGetCurveName   = "get_curvename"
	CmdGetCurveValue  = "get_curvevalue"
	CmdSetCurveValue  = "set_curvevalue"

	// Playback
	CmdPlay         = "play"
	CmdStop         = "stop"
	CmdIsPlaying    = "is_playing"
	CmdIsInfinite   = "is_infinite"
	CmdIsRandomized = "is_randomized"
	CmdEnableEvents = "enable_events"

	// User interface
	CmdWindowBack       = "window_back"
	CmdWindowFront      = "window_front"
	CmdWindowMessage    = "window_message"
	CmdWindowParameters = "window_parameters"
	CmdWindowRendering  = "window_rendering"
	CmdWindowTest       = "window_test"
)

// Lookup-mode tokens for meta parameter and curve accessors.
const (
	ByIndexToken = "BY_INDEX"
	ByNameToken  = "BY_NAME"
)

var vocabulary = []string{
	CmdGetVersion, CmdGetCommands, CmdGetModels, CmdSelectModel, CmdGetPath,
	CmdGetSampleRate, CmdSetSampleRate,
	CmdQueryPatchNames, CmdQueryPatch, CmdQueryCategories, CmdQueryTags,
	CmdLoadPatch, CmdSavePatch, CmdRenderPatch, CmdGetModelName, CmdGetPatchName,
	CmdGetVariation, CmdSetVariation, CmdGetDrawing, CmdSetDrawing,
	CmdGetMetaCount, CmdGetMetaNames, CmdGetMetaName, CmdGetMetaValue, CmdSetMetaValue,
	CmdGetCurvesCount, CmdGetCurveNames, CmdGetCurveName, CmdGetCurveValue, CmdSetCurveValue,
	CmdPlay, CmdStop, CmdIsPlaying, CmdIsInfinite, CmdIsRandomized, CmdEnableEvents,
	CmdWindowBack, CmdWindowFront, CmdWindowMessage, CmdWindowParameters,
	CmdWindowRendering, CmdWindowTest,
}

// Commands returns the full command vocabulary in declaration order.
func Commands() []string {
	out := make([]string, len(vocabulary))
	copy(out, vocabulary)
	return out
}

// IsCommand reports whether token is part of the vocabulary.
func IsCommand(token string) bool {
	for _, c := range vocabulary {
		if c == token {
			return true
		}
	}
	return false
}

// System path names accepted by get_path.
const (
	PathPatchFolder       = "PATCH_FOLDER"
	PathBankFolder        = "BANK_FOLDER"
	PathBinaryFolder      = "BINARY_FOLDER"
	PathMiddlewareFolder  = "MIDDLEWARE_FOLDER"
	PathRenderingFolder   = "RENDERING_FOLDER"
	PathAudioAssetsFolder = "AUDIOASSETS_FOLDER"
	PathPicturesFolder    = "PICTURES_FOLDER"
	PathVideoFolder       = "VIDEO_FOLDER"
	PathScriptsFolder     = "SCRIPTS_FOLDER"
	PathRepositoryFolder  = "REPOSITORY_FOLDER"
	PathRandomPatchFolder = "RANDOMPATCH_FOLDER"
	PathAudioEditorExe    = "AUDIOEDITOR_EXE"
)

// PathNames lists every get_path name.
func PathNames() []string {
	return []string{
		PathPatchFolder, PathBankFolder, PathBinaryFolder, PathMiddlewareFolder,
		PathRenderingFolder, PathAudioAssetsFolder, PathPicturesFolder, PathVideoFolder,
		PathScriptsFolder, PathRepositoryFolder, PathRandomPatchFolder, PathAudioEditorExe,
	}
}
