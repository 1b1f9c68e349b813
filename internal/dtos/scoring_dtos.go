package dtos

// PredictRequest is the wire body for POST /predict on the scoring service.
// Field names follow the model's training schema.
type PredictRequest struct {
	Amount           float64 `json:"amount"`
	Frequency        int     `json:"Transaction_Frequency"`
	AmountDeviation  float64 `json:"Transaction_Amount_Deviation"` // 0 when unknown
	Channel          string  `json:"Transaction_Channel"`
	Gateway          string  `json:"Payment_Gateway"`
	DevicePlatform   string  `json:"Device_Type"`
	MerchantCategory string  `json:"Merchant_Category"`
	Status           string  `json:"Transaction_Status"`
	City             string  `json:"City"`
	State            string  `json:"State"`
}

type PredictResponse struct {
	FraudPrediction  int     `json:"fraud_prediction"`
	FraudProbability float64 `json:"fraud_probability"`
	RiskLevel        string  `json:"risk_level"`
}

type HealthResponse struct {
	Status string `json:"status"`
}
