package indicator

import "github.com/bytedance/sonic"

// Values that are not ready encode as null; JSON has no NaN.

func opt(v float64) *float64 {
	if !Ready(v) {
		return nil
	}
	return &v
}

func (v MACDValue) MarshalJSON() ([]byte, error) {
	return sonic.Marshal(struct {
		MACD   *float64 `json:"macd"`
		Signal *float64 `json:"signal"`
		Hist   *float64 `json:"histogram"`
	}{opt(v.MACD), opt(v.Signal), opt(v.Hist)})
}

func (v BandsValue) MarshalJSON() ([]byte, error) {
	return sonic.Marshal(struct {
		Upper  *float64 `json:"upper"`
		Middle *float64 `json:"middle"`
		Lower  *float64 `json:"lower"`
	}{opt(v.Upper), opt(v.Middle), opt(v.Lower)})
}

func (v SuperTrendValue) MarshalJSON() ([]byte, error) {
	return sonic.Marshal(struct {
		Value     *float64 `json:"value"`
		Direction int      `json:"direction"`
	}{opt(v.Value), v.Direction})
}

func (s Snapshot) MarshalJSON() ([]byte, error) {
	return sonic.Marshal(struct {
		SmallMA    *float64        `json:"smallMA"`
		BigMA      *float64        `json:"bigMA"`
		RSI        *float64        `json:"rsi"`
		CCI        *float64        `json:"cci"`
		MACD       MACDValue       `json:"macd"`
		Bands      BandsValue      `json:"bollingerBand"`
		StochK     *float64        `json:"stochastic"`
		PSAR       *float64        `json:"psar"`
		SuperTrend SuperTrendValue `json:"superTrend"`
		WillR      *float64        `json:"williamR"`
		MFI        *float64        `json:"mfi"`
		VWAP       *float64        `json:"vwap"`
		OBV        *float64        `json:"obv"`
	}{
		opt(s.SmallMA), opt(s.BigMA), opt(s.RSI), opt(s.CCI),
		s.MACD, s.Bands,
		opt(s.StochK), opt(s.PSAR),
		s.SuperTrend,
		opt(s.WillR), opt(s.MFI), opt(s.VWAP), opt(s.OBV),
	})
}
