package service

func NewEngine(presets PresetSource) Engine {
	return NewSessionEngine(presets)
}
