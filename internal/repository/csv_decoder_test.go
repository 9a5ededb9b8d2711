package repository

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shale-dashboard/internal/models"
)

const productionHeader = "sigla,anio,mes,prod_pet,prod_gas,prod_agua,tef,empresa,areayacimiento,coordenadax,coordenaday,formprod,sub_tipo_recurso,tipopozo\n"

func TestDecodeProduction(t *testing.T) {
	tests := []struct {
		name        string
		data        string
		wantErr     bool
		wantField   string
		checkValues func(*testing.T, []*models.RawProductionRecord)
	}{
		{
			name: "comma delimited",
			data: productionHeader +
				"YPF.Nq.LACh-1(h),2023,3,1200.5,350,40,0.95,YPF S.A.,LOMA CAMPANA,2500000.1,5800000.2,VMUT,SHALE,Petrolífero\n" +
				"YPF.Nq.LACh-2(h),2023,3,0,0,0,0,YPF S.A.,LOMA CAMPANA,,,VMUT,SHALE,Otro tipo\n",
			checkValues: func(t *testing.T, recs []*models.RawProductionRecord) {
				require.Len(t, recs, 2)
				assert.Equal(t, "YPF.Nq.LACh-1(h)", recs[0].Sigla)
				assert.Equal(t, 2023, recs[0].Year)
				assert.Equal(t, 3, recs[0].Month)
				assert.Equal(t, 1200.5, recs[0].OilVolume)
				assert.Equal(t, 0.95, recs[0].TEF)
				require.NotNil(t, recs[0].CoordX)
				assert.Equal(t, 2500000.1, *recs[0].CoordX)
				assert.Equal(t, "Petrolífero", recs[0].WellType)
				assert.Nil(t, recs[1].CoordX)
				assert.Nil(t, recs[1].CoordY)
			},
		},
		{
			name: "semicolon with decimal comma and BOM",
			data: "\xEF\xBB\xBFsigla;anio;mes;prod_pet;prod_gas;prod_agua;tef;empresa;areayacimiento;coordenadax;coordenaday;formprod;sub_tipo_recurso;tipopozo\n" +
				"W1;2022;12;10,5;2000;1,25;0,5;VISTA ENERGY ARGENTINA SAU;BAJADA DEL PALO OESTE;;;VMUT;SHALE;Petrolífero\n",
			checkValues: func(t *testing.T, recs []*models.RawProductionRecord) {
				require.Len(t, recs, 1)
				assert.Equal(t, "W1", recs[0].Sigla)
				assert.Equal(t, 10.5, recs[0].OilVolume)
				assert.Equal(t, 1.25, recs[0].WaterVolume)
				assert.Equal(t, 0.5, recs[0].TEF)
			},
		},
		{
			name: "extra columns and any column order",
			data: "idempresa,tipopozo,sigla,mes,anio,prod_pet,prod_gas,prod_agua,tef,empresa,areayacimiento,coordenadax,coordenaday,formprod,sub_tipo_recurso\n" +
				"X1,Gasífero,W9,1,2021.0,0,900,0,1,TECPETROL S.A.,FORTIN DE PIEDRA,,,VMUT,SHALE\n",
			checkValues: func(t *testing.T, recs []*models.RawProductionRecord) {
				require.Len(t, recs, 1)
				assert.Equal(t, "W9", recs[0].Sigla)
				assert.Equal(t, 2021, recs[0].Year)
				assert.Equal(t, models.FluidGas, recs[0].WellType)
			},
		},
		{
			name:      "missing column",
			data:      "sigla,anio,mes\nW1,2023,1\n",
			wantErr:   true,
			wantField: "header",
		},
		{
			name:      "non numeric volume",
			data:      productionHeader + "W1,2023,1,abc,0,0,1,X,Y,,,VMUT,SHALE,Petrolífero\n",
			wantErr:   true,
			wantField: "prod_pet",
		},
		{
			name:      "NaN volume",
			data:      productionHeader + "W1,2023,1,NaN,Inf,0,NaN,X,Y,,,VMUT,SHALE,Petrolífero\n",
			wantErr:   true,
			wantField: "prod_pet",
		},
		{
			name:      "infinite effective time",
			data:      productionHeader + "W1,2023,1,1,1,1,+Inf,X,Y,,,VMUT,SHALE,Petrolífero\n",
			wantErr:   true,
			wantField: "tef",
		},
		{
			name:      "infinite coordinate",
			data:      productionHeader + "W1,2023,1,1,1,1,1,X,Y,-Inf,,VMUT,SHALE,Petrolífero\n",
			wantErr:   true,
			wantField: "coordenadax",
		},
		{
			name:      "empty required number",
			data:      productionHeader + "W1,2023,1,1,1,1,,X,Y,,,VMUT,SHALE,Petrolífero\n",
			wantErr:   true,
			wantField: "tef",
		},
		{
			name:      "fractional month",
			data:      productionHeader + "W1,2023,1.5,1,1,1,1,X,Y,,,VMUT,SHALE,Petrolífero\n",
			wantErr:   true,
			wantField: "mes",
		},
		{
			name:    "ragged row",
			data:    productionHeader + "W1,2023,1\n",
			wantErr: true,
		},
		{
			name:    "empty file",
			data:    "",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			recs, err := DecodeProduction([]byte(tt.data))
			if tt.wantErr {
				require.Error(t, err)
				if tt.wantField != "" {
					var verr *models.ValidationError
					require.True(t, errors.As(err, &verr), "got %v", err)
					assert.Equal(t, tt.wantField, verr.Field)
				}
				return
			}
			require.NoError(t, err)
			if tt.checkValues != nil {
				tt.checkValues(t, recs)
			}
		})
	}
}

func TestDecodeFractures(t *testing.T) {
	data := "id_base_fractura_adjiv,sigla,longitud_rama_horizontal_m,cantidad_fracturas,arena_bombeada_nacional_tn,arena_bombeada_importada_tn,fecha_inicio_fractura\n" +
		"101,W1,2500,50,3000,1000,2023-01-10\n" +
		",W2,,,,,\n"

	recs, err := DecodeFractures([]byte(data))
	require.NoError(t, err)
	require.Len(t, recs, 2)

	assert.Equal(t, &models.RawFractureRecord{
		Sigla: "W1", FractureID: "101", BranchLengthM: 2500, StageCount: 50, ProppantNational: 3000, ProppantImported: 1000,
	}, recs[0])
	assert.Equal(t, "", recs[1].FractureID)
	assert.Zero(t, recs[1].BranchLengthM)

	_, err = DecodeFractures([]byte("sigla,cantidad_fracturas\nW1,3\n"))
	require.Error(t, err)
}

func TestDetectDelimiter(t *testing.T) {
	assert.Equal(t, ',', detectDelimiter([]byte("a,b,c\n1;2,3")))
	assert.Equal(t, ';', detectDelimiter([]byte("a;b;c\n1,2;3")))
	assert.Equal(t, ',', detectDelimiter([]byte("single")))
}
